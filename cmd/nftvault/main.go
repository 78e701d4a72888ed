package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "nftvault"
	app.Usage = "Deploy and inspect NFT Vault contract"
	app.Commands = []cli.Command{
		deployCommand(),
		getCommand(),
		listCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
