// Command boardctl drives an in-process board registry through its
// pseudo-filesystem interface.
package main

func main() {
	execute()
}
