package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/cmd/utils/internal/commands"
)

const (
	appName    = "tableside-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	// rotate-sessions and staff-token take one positional argument before the flags
	var positional string
	if command == "rotate-sessions" || command == "staff-token" {
		if len(args) == 0 {
			fmt.Printf("%s requires an argument\n\n", command)
			printUsage()
			os.Exit(1)
		}
		positional, args = args[0], args[1:]
	}

	config, err := apt.LoadConfig("UTILS", args)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		logger.Info("✅ Demo seeding completed successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "sweep-sessions":
		if err := commands.SweepSessions(ctx, config, logger); err != nil {
			log.Fatalf("❌ Session sweep failed: %v", err)
		}
		logger.Info("✅ Session sweep completed successfully")

	case "rotate-sessions":
		if err := commands.RotateSessions(ctx, config, logger, positional); err != nil {
			log.Fatalf("❌ Session rotation failed: %v", err)
		}
		logger.Info("✅ Session rotation completed successfully")

	case "staff-token":
		token, err := commands.StaffToken(config, logger, positional)
		if err != nil {
			log.Fatalf("❌ Cannot mint staff token: %v", err)
		}
		fmt.Println(token)

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Tableside utility commands

Usage:
  %s <command> [options]

Commands:
  seed-demo                      Apply demo seeding (restaurant, tables, staff and menu)
  reset-db                       Drop the service database (dev only - USE WITH CAUTION)
  sweep-sessions                 Delete expired QR session tokens
  rotate-sessions <restaurant>   Reissue QR tokens for every active table of a restaurant
  staff-token <role>             Print a dev bearer token for a demo waiter, kitchen or manager
  version                        Print version information
  help                           Show this help message

Environment Variables:
  UTILS_DB_MONGO_URL       MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB_MONGO_NAME      Database name (default: tableside)
  UTILS_AUTH_JWT_SECRET    Secret used to sign staff tokens
  UTILS_LOG_LEVEL          Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  %s staff-token waiter
  UTILS_DB_MONGO_URL=mongodb://localhost:27017 %s reset-db

`, appName, appName, appName, appName, appName)
}
