package main

import "github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/cmd"

func main() {
	cmd.Execute()
}
