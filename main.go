package main

import "video-processing/cmd"

func main() {
	cmd.Execute()
}
