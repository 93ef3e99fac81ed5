package main

import "github.com/ValentinKolb/rFS/cmd"

func main() {
	cmd.Execute()
}
