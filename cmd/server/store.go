package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"aligner-bot/internal/config"
	"aligner-bot/internal/database"
	"aligner-bot/internal/integrations/paramstore"
	"aligner-bot/internal/store"
	"aligner-bot/internal/store/airtable"
	"aligner-bot/internal/store/dynamo"
	"aligner-bot/internal/store/memory"
	"aligner-bot/internal/store/postgres"
)

// loadSecrets fills the bot and Airtable tokens from SSM Parameter Store.
// Values already present in the environment win.
func loadSecrets(ctx context.Context, cfg *config.Config) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	ps, err := paramstore.New(ssm.NewFromConfig(awsCfg))
	if err != nil {
		return err
	}
	wantAirtable := cfg.StoreBackend == config.BackendAirtable && cfg.AirtableToken == ""
	secrets, err := paramstore.LoadSecrets(ctx, ps, cfg.ParamPrefix, wantAirtable)
	if err != nil {
		return err
	}
	if cfg.BotToken == "" {
		cfg.BotToken = secrets.BotToken
	}
	if wantAirtable {
		cfg.AirtableToken = secrets.AirtableToken
	}
	return nil
}

// openRepository builds the configured store backend. The returned func
// releases its resources.
func openRepository(ctx context.Context, cfg *config.Config, logg zerolog.Logger) (store.Repository, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendAirtable:
		repo, err := airtable.New(airtable.Config{
			BaseURL:          cfg.AirtableURL,
			Token:            cfg.AirtableToken,
			BaseID:           cfg.AirtableBaseID,
			ParticipantTable: cfg.AirtablePartTable,
			KudosTable:       cfg.AirtableKudoTable,
		})
		return repo, noop, err

	case config.BackendPostgres:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, noop, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return postgres.NewRepository(db), closeDB, nil

	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("load aws config: %w", err)
		}
		repo, err := dynamo.New(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable)
		return repo, noop, err

	case config.BackendMemory:
		logg.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.NewRepository(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
