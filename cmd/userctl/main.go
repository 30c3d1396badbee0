package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"userapi/internal/commands"
)

func main() {
	if err := commands.NewApp(commands.Open).Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}
