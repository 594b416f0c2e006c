// Package process isolates child processes so that a whole process tree can
// be terminated at once.
//
// On Unix the child becomes the leader of a new process group and
// termination sends SIGKILL to the negative PID, reaching every descendant
// that has not escaped the group. On Windows termination walks the tree with
// taskkill.
package process
