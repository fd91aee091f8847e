package main

import "github.com/xvierd/gitlanes/cmd"

func main() {
	cmd.Execute()
}
