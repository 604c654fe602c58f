/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/pitstrategy/cmd"

func main() {
	cmd.Execute()
}
