package indexclient

import (
	"context"
	"embed"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/armadaproject/jointester/internal/common/database"
	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	bodyTable   = pgx.Identifier{"body"}
	bodyColumns = []string{
		model.FieldID,
		model.FieldDataSource,
		model.FieldDataSourceName,
		model.FieldDataSourceType,
		model.FieldTextAll,
		model.FieldFewID,
	}
	instanceTable   = pgx.Identifier{"instance"}
	instanceColumns = []string{
		model.FieldID,
		model.FieldDataSource,
		model.FieldDataSourceName,
		model.FieldDataSourceType,
		model.FieldJoinID,
		model.FieldFewJoinID,
		model.FieldDateOne,
		model.FieldDateTwo,
		model.FieldAcl,
		model.FieldSource,
		model.FieldPlace,
	}
)

// Postgres is a Backend copying bodies and instances into two tables joined on instance.join_id.
// Every batch is written in its own transaction, so records are queryable as soon as Send returns and
// the soft commit deadline has no effect.
type Postgres struct {
	config configuration.PostgresConfig
	pool   *pgxpool.Pool
}

// NewPostgres creates a Postgres backend. No connection is made until Connect.
func NewPostgres(config configuration.PostgresConfig) *Postgres {
	return &Postgres{config: config}
}

func (p *Postgres) Connect(ctx context.Context) error {
	pool, err := database.OpenPgxPool(ctx, p.config.Connection)
	if err != nil {
		return err
	}
	p.pool = pool

	if !p.config.CreateSchema {
		return nil
	}
	migrations, err := database.ReadMigrations(migrationsFS, "migrations")
	if err != nil {
		return errors.WithMessage(err, "loading migrations")
	}
	if err := database.UpdateDatabase(ctx, p.pool, migrations); err != nil {
		return errors.WithMessage(err, "applying migrations")
	}
	return nil
}

func (p *Postgres) Send(ctx context.Context, records []model.Record, _ time.Duration) error {
	bodies, instances := splitRows(records)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if len(bodies) > 0 {
		if _, err := tx.CopyFrom(ctx, bodyTable, bodyColumns, pgx.CopyFromRows(bodies)); err != nil {
			return errors.Wrapf(err, "copying %d bodies", len(bodies))
		}
	}
	if len(instances) > 0 {
		if _, err := tx.CopyFrom(ctx, instanceTable, instanceColumns, pgx.CopyFromRows(instances)); err != nil {
			return errors.Wrapf(err, "copying %d instances", len(instances))
		}
	}
	return errors.Wrap(tx.Commit(ctx), "committing batch")
}

// Commit refreshes planner statistics so join queries issued straight after the run are planned against
// the loaded data.
func (p *Postgres) Commit(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, "ANALYZE body, instance")
	return errors.Wrap(err, "analyzing tables")
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// splitRows converts records, including nested children, into COPY rows for the body and instance tables.
func splitRows(records []model.Record) (bodies, instances [][]any) {
	var add func(r model.Record)
	add = func(r model.Record) {
		switch r.Kind {
		case model.KindBody:
			bodies = append(bodies, []any{
				r.ID,
				r.Source.DataSource,
				r.Source.DataSourceName,
				r.Source.DataSourceType,
				r.TextAll,
				r.FewID,
			})
		case model.KindInstance:
			instances = append(instances, []any{
				r.ID,
				r.Source.DataSource,
				r.Source.DataSourceName,
				r.Source.DataSourceType,
				r.JoinID,
				r.FewJoinID,
				r.DateOne.UTC(),
				r.DateTwo.UTC(),
				r.Acl,
				r.SourceCode,
				r.Place.String(),
			})
		}
		for _, child := range r.Children {
			add(child)
		}
	}
	for _, r := range records {
		add(r)
	}
	return bodies, instances
}
