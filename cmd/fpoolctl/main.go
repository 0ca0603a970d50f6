// Command fpoolctl exercises fixed-block pools from the command line.
package main

func main() {
	execute()
}
