// Package lookup resolves LGD (Local Government Directory) codes to
// village and taluka records: a static directory in postgres fronted by a
// redis read-through cache.
package lookup

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/insights/metrics"
	redisstore "github.com/open-rails/insights/storage/redis"
)

// Cache record kinds.
const (
	kindVillage = "village"
	kindTaluka  = "taluka"
)

// Village is one village entry of the directory.
type Village struct {
	LGDCode      string `json:"lgd_code"`
	Name         string `json:"name"`
	TalukaCode   string `json:"taluka_code"`
	TalukaName   string `json:"taluka_name"`
	DistrictName string `json:"district_name"`
}

// Taluka is one taluka (sub-district) entry of the directory.
type Taluka struct {
	LGDCode      string `json:"lgd_code"`
	Name         string `json:"name"`
	DistrictName string `json:"district_name"`
	VillageCount int    `json:"village_count"`
}

// Directory serves code lookups. The cache may be nil, in which case every
// lookup hits postgres.
type Directory struct {
	pg     *pgxpool.Pool
	cache  *redisstore.LookupCache
	schema string
	log    *logrus.Entry
}

// NewDirectory builds a Directory. schema defaults to "telemetry".
func NewDirectory(pg *pgxpool.Pool, cache *redisstore.LookupCache, schema string, log *logrus.Entry) *Directory {
	if schema == "" {
		schema = "telemetry"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Directory{pg: pg, cache: cache, schema: schema, log: log}
}

func (d *Directory) table() string { return d.schema + ".lgd_directory" }

// Village resolves a village LGD code.
func (d *Directory) Village(ctx context.Context, code string) (Village, bool, error) {
	var v Village
	if d.cache != nil {
		hit, err := d.cache.Get(ctx, kindVillage, code, &v)
		if err != nil {
			// Cache trouble degrades to a direct read.
			d.log.WithError(err).Warn("lookup cache read failed")
		} else if hit {
			metrics.LookupCacheTotal.WithLabelValues("hit").Inc()
			return v, true, nil
		}
		metrics.LookupCacheTotal.WithLabelValues("miss").Inc()
	}

	err := d.pg.QueryRow(ctx,
		`SELECT lgd_code, name, taluka_code, taluka_name, district_name
		FROM `+d.table()+` WHERE lgd_code = $1 AND kind = 'village'`, code).
		Scan(&v.LGDCode, &v.Name, &v.TalukaCode, &v.TalukaName, &v.DistrictName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Village{}, false, nil
	}
	if err != nil {
		return Village{}, false, err
	}
	if d.cache != nil {
		if err := d.cache.Put(ctx, kindVillage, code, v); err != nil {
			d.log.WithError(err).Warn("lookup cache write failed")
		}
	}
	return v, true, nil
}

// Taluka resolves a taluka LGD code.
func (d *Directory) Taluka(ctx context.Context, code string) (Taluka, bool, error) {
	var t Taluka
	if d.cache != nil {
		hit, err := d.cache.Get(ctx, kindTaluka, code, &t)
		if err != nil {
			d.log.WithError(err).Warn("lookup cache read failed")
		} else if hit {
			metrics.LookupCacheTotal.WithLabelValues("hit").Inc()
			return t, true, nil
		}
		metrics.LookupCacheTotal.WithLabelValues("miss").Inc()
	}

	err := d.pg.QueryRow(ctx,
		`SELECT t.lgd_code, t.name, t.district_name,
			(SELECT count(*) FROM `+d.table()+` v WHERE v.kind = 'village' AND v.taluka_code = t.lgd_code)
		FROM `+d.table()+` t WHERE t.lgd_code = $1 AND t.kind = 'taluka'`, code).
		Scan(&t.LGDCode, &t.Name, &t.DistrictName, &t.VillageCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Taluka{}, false, nil
	}
	if err != nil {
		return Taluka{}, false, err
	}
	if d.cache != nil {
		if err := d.cache.Put(ctx, kindTaluka, code, t); err != nil {
			d.log.WithError(err).Warn("lookup cache write failed")
		}
	}
	return t, true, nil
}

// Refresh rewarms the cache from postgres. Run on a schedule; the
// directory changes rarely (government publications), so a full reload is
// cheap and keeps entries from expiring out during business hours.
func (d *Directory) Refresh(ctx context.Context) error {
	if d.cache == nil {
		return nil
	}
	rows, err := d.pg.Query(ctx,
		`SELECT lgd_code, name, taluka_code, taluka_name, district_name
		FROM `+d.table()+` WHERE kind = 'village'`)
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var v Village
		if err := rows.Scan(&v.LGDCode, &v.Name, &v.TalukaCode, &v.TalukaName, &v.DistrictName); err != nil {
			return err
		}
		if err := d.cache.Put(ctx, kindVillage, v.LGDCode, v); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	d.log.WithField("villages", n).Info("lookup directory cache refreshed")
	return nil
}
