package authgin

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/insights/lookup"
)

// Gin context keys for resolved directory records.
const (
	ctxKeyVillage = "lookup.village"
	ctxKeyTaluka  = "lookup.taluka"
)

// LookupMiddleware resolves `village_code` and `taluka_code` query
// parameters against the LGD directory and attaches the records to the
// request. Unknown codes and directory trouble are not request errors —
// handlers that require a record check for its presence themselves.
func LookupMiddleware(dir *lookup.Directory, log *logrus.Entry) gin.HandlerFunc {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if code := c.Query("village_code"); code != "" {
			if v, ok, err := dir.Village(ctx, code); err != nil {
				log.WithError(err).Warn("village lookup failed")
			} else if ok {
				c.Set(ctxKeyVillage, v)
			}
		}
		if code := c.Query("taluka_code"); code != "" {
			if t, ok, err := dir.Taluka(ctx, code); err != nil {
				log.WithError(err).Warn("taluka lookup failed")
			} else if ok {
				c.Set(ctxKeyTaluka, t)
			}
		}
		c.Next()
	}
}

// VillageFromGin returns the village record attached by LookupMiddleware.
func VillageFromGin(c *gin.Context) (lookup.Village, bool) {
	v, ok := c.Get(ctxKeyVillage)
	if !ok {
		return lookup.Village{}, false
	}
	vill, ok := v.(lookup.Village)
	return vill, ok
}

// TalukaFromGin returns the taluka record attached by LookupMiddleware.
func TalukaFromGin(c *gin.Context) (lookup.Taluka, bool) {
	v, ok := c.Get(ctxKeyTaluka)
	if !ok {
		return lookup.Taluka{}, false
	}
	tal, ok := v.(lookup.Taluka)
	return tal, ok
}
