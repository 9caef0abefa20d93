package main

import "github.com/productvision/catalog/cmd"

func main() {
	cmd.Execute()
}
