package main

import (
	"fmt"
	"os"
)

func main() {
	c := &cli{out: os.Stdout}
	if err := c.execute(c.rootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
