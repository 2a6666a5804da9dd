package main

import "github.com/masmgr/git-contains/cmd"

func main() {
	cmd.Run()
}
