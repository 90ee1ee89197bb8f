package main

import "github.com/leegeunhyeok/box-db/cmd"

func main() {
	cmd.Execute()
}
