package main

import "github.com/OpenTraceLab/OpenTraceWave/cmd/wavconv/cmd"

func main() {
	cmd.Execute()
}
