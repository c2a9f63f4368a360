package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	configpkg "github.com/minhyannv/sql-agent-go/pkg/config"
	loggerpkg "github.com/minhyannv/sql-agent-go/pkg/logger"
)

const googleTokenURI = "https://oauth2.googleapis.com/token"

// BigQuery runs queries with a service-account authenticated client.
type BigQuery struct {
	client   *bigquery.Client
	location string
	logger   loggerpkg.Logger
	verbose  bool
}

// serviceAccountKey mirrors the JSON key file Google issues for service accounts.
type serviceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`
}

// CredentialsJSON builds a service-account key document from cfg.
func CredentialsJSON(cfg configpkg.BigQueryConfig) ([]byte, error) {
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, errors.New("service account email and private key are required")
	}
	return json.Marshal(serviceAccountKey{
		Type:         "service_account",
		ProjectID:    cfg.ProjectID,
		PrivateKeyID: cfg.PrivateKeyID,
		PrivateKey:   configpkg.NormalizePrivateKey(cfg.PrivateKey),
		ClientEmail:  cfg.ClientEmail,
		ClientID:     cfg.ClientID,
		TokenURI:     googleTokenURI,
	})
}

// NewBigQuery creates a BigQuery client for cfg.ProjectID.
func NewBigQuery(ctx context.Context, cfg configpkg.BigQueryConfig, logger loggerpkg.Logger, verbose bool) (*BigQuery, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("bigquery project id is not set")
	}
	if logger == nil {
		logger = loggerpkg.NopLogger{}
	}
	creds, err := CredentialsJSON(cfg)
	if err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	loggerpkg.Debug(verbose, logger, "bigquery client ready", loggerpkg.Fields{
		"project_id":   cfg.ProjectID,
		"client_email": cfg.ClientEmail,
		"location":     cfg.Location,
	})
	return &BigQuery{
		client:   client,
		location: cfg.Location,
		logger:   logger,
		verbose:  verbose,
	}, nil
}

// Query runs sql and reads every page of the result.
func (b *BigQuery) Query(ctx context.Context, sql string) ([]Row, error) {
	q := b.client.Query(sql)
	if b.location != "" {
		q.Location = b.location
	}
	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, toRow(it.Schema, values))
	}
	loggerpkg.Debug(b.verbose, b.logger, "bigquery rows read", loggerpkg.Fields{
		"rows":       len(rows),
		"total_rows": it.TotalRows,
	})
	return rows, nil
}

// Close releases the underlying client.
func (b *BigQuery) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func toRow(schema bigquery.Schema, values []bigquery.Value) Row {
	row := make(Row, len(values))
	for i, v := range values {
		name := fmt.Sprintf("f%d", i)
		if i < len(schema) && schema[i] != nil {
			name = schema[i].Name
		}
		row[i] = Field{Name: name, Value: v}
	}
	return row
}
