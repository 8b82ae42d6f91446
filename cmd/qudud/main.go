// Command qudud is the terminal client for the Qudud quit-smoking assistant.
package main

import "github.com/qudud-dev/qudud/internal/cli"

func main() {
	cli.Execute()
}
