// The keel command runs engine scenes from the command line.
package main

func main() {
	Execute()
}
