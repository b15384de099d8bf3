package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/database"
	"github.com/sparta-academy/sparta-backend/internal/logger"
	"github.com/sparta-academy/sparta-backend/internal/model"
	"github.com/sparta-academy/sparta-backend/internal/repository"
)

// bankEntry is one question in the ingestion file.
type bankEntry struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
}

func main() {
	var (
		universityCode string
		subjectName    string
		filePath       string
		replace        bool
	)
	flag.StringVar(&universityCode, "university", "", "University code (e.g. UPEC)")
	flag.StringVar(&subjectName, "subject", "", "Subject name (e.g. Matemáticas)")
	flag.StringVar(&filePath, "file", "", "Path to the JSON bank file")
	flag.BoolVar(&replace, "replace", false, "Clear the subject's existing bank first")
	flag.Parse()

	if universityCode == "" || subjectName == "" || filePath == "" {
		fmt.Println("Usage: seed-questions -university <code> -subject <name> -file <bank.json> [-replace]")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	// ─── Read the bank file ────────────────────────────────────────────
	raw, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Failed to read bank file")
	}

	var entries []bankEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Fatal().Err(err).Msg("Bank file is not a JSON array of questions")
	}
	if len(entries) == 0 {
		log.Fatal().Msg("Bank file is empty")
	}

	for i, e := range entries {
		if e.Question == "" || len(e.Options) < 2 {
			log.Fatal().Int("index", i).Msg("Question needs a prompt and at least two options")
		}
		if _, ok := e.Options[e.CorrectAnswer]; !ok {
			log.Fatal().Int("index", i).Str("correct_answer", e.CorrectAnswer).Msg("correct_answer is not an option label")
		}
	}

	// ─── Find or create the subject ────────────────────────────────────
	var subjectID int
	err = pool.QueryRow(ctx,
		`SELECT id FROM subjects WHERE university_code = $1 AND name = $2`,
		universityCode, subjectName).Scan(&subjectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			fmt.Printf("Subject %q not found under %s. Creating it...\n", subjectName, universityCode)
			subject := &model.Subject{UniversityCode: universityCode, Name: subjectName}
			if err := subjectRepo.Create(ctx, subject); err != nil {
				log.Fatal().Err(err).Msg("Failed to create subject")
			}
			subjectID = subject.ID
		} else {
			log.Fatal().Err(err).Msg("Failed to look up subject")
		}
	}

	if replace {
		if err := questionRepo.DeleteBySubject(ctx, subjectID); err != nil {
			log.Fatal().Err(err).Msg("Failed to clear existing bank")
		}
		fmt.Println("Existing bank cleared")
	}

	// ─── Bulk load ─────────────────────────────────────────────────────
	questions := make([]model.Question, len(entries))
	for i, e := range entries {
		questions[i] = model.Question{
			UniversityCode: universityCode,
			SubjectID:      subjectID,
			Prompt:         e.Question,
			Options:        e.Options,
			CorrectLabel:   e.CorrectAnswer,
		}
	}

	inserted, err := questionRepo.BulkInsert(ctx, questions)
	if err != nil {
		log.Fatal().Err(err).Msg("Bulk insert failed")
	}

	fmt.Printf("\nSeed completed! Loaded %d questions into %s / %s.\n", inserted, universityCode, subjectName)
	fmt.Println("Restart the server (or wait for the next cache miss) to refresh the Redis bank cache.")
}
