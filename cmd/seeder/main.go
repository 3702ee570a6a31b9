package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/database"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/session"
)

// demoPlayers covers the whole level scale so the pairing engine has
// something interesting to chew on.
var demoPlayers = []struct {
	name  string
	level badminton.Level
}{
	{"An", badminton.LevelY},
	{"Binh", badminton.LevelYPlus},
	{"Chi", badminton.LevelTBY},
	{"Dung", badminton.LevelTBMinus},
	{"Giang", badminton.LevelTB},
	{"Hoa", badminton.LevelTBPlus},
	{"Khanh", badminton.LevelK},
	{"Linh", badminton.LevelG},
	{"Minh", badminton.LevelTB},
}

func main() {
	log.Info("Starting database seeder...")

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "demo.db"
	}
	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "./migrations"
	}

	db, teardown, err := database.InitDB(dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"), migrationsDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := session.New(db)

	sess, err := store.CreateSession("Demo Night", 2, 6, 120)
	if err != nil {
		log.Fatalf("Failed to create demo session: %s", err)
	}
	log.Info("Created demo session", "sessionID", sess.ID, "courts", sess.NumberOfCourts)

	for _, p := range demoPlayers {
		player, err := store.AddPlayer(sess.ID, p.name, p.level)
		if err != nil {
			log.Fatalf("Failed to add player %s: %s", p.name, err)
		}
		log.Info("Added player", "name", player.Name, "level", player.Level)
	}

	if _, err := store.StartSession(sess.ID); err != nil {
		log.Fatalf("Failed to start demo session: %s", err)
	}

	result, err := store.AutoAssign(sess.ID)
	if err != nil {
		log.Fatalf("Failed to auto-assign courts: %s", err)
	}

	log.Info("Seeding finished", "sessionID", sess.ID, "matchesStarted", result.MatchesCreated)
}
