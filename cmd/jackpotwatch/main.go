package main

import "jackpot-alerts/internal/cli"

func main() {
	cli.Execute()
}
