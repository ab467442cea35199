// Command goadmin runs the admin console backend.
package main

func main() {
	Execute()
}
