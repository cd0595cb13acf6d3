/*
Package cli provides the jobpool command line. Each command builds its own
resource pool and scheduler from the configuration selected with --config,
so a run is a self contained simulation.
*/
package cli
