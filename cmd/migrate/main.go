package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/radieske/fantasy-betbook/internal/shared/config"
	"github.com/radieske/fantasy-betbook/internal/store/postgres"
)

const usage = `uso: migrate [-dsn DSN] <comando>

comandos:
  up        aplica todas as migrações pendentes
  down N    desfaz as últimas N migrações
  status    mostra a versão atual
`

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	dsn := flag.String("dsn", cfg.PostgresDSN, "postgres DSN (padrão: POSTGRES_DSN)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "up":
		v, err := postgres.MigrateUp(*dsn)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Printf("schema at version %d", v)
	case "down":
		if len(args) < 2 {
			log.Fatal("down requires the number of steps")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			log.Fatalf("invalid steps %q", args[1])
		}
		if err := postgres.MigrateDown(*dsn, n); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Printf("rolled back %d migration(s)", n)
	case "status":
		v, dirty, err := postgres.MigrateStatus(*dsn)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		log.Printf("version=%d dirty=%t", v, dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
