package main

import "github.com/RyanBlaney/hls2mp4/cmd"

func main() {
	cmd.Execute()
}
