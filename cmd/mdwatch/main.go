// Command mdwatch monitors a directory where Amber is running a simulation.
//
//	mdwatch serve [dir]    serves the state of the simulation over HTTP
//	mdwatch tui [dir]      shows it in the terminal
//	mdwatch rmsd           computes the backbone RMSD along the trajectories
package main

func main() {
	Execute()
}
