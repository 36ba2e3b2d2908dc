// Command chimeractl drives a console session from the terminal. The session
// is kept in the local store under the selected profile, so a sign in made
// by one invocation is picked up by the next.
package main

func main() {
	Execute()
}
