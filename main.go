package main

import (
	"github.com/beezlebub-bot/beezlebot-go/cmd"
)

func main() {
	cmd.Execute()
}
