package controllers

import (
	"time"

	"github.com/ManuelReschke/RecurFox/app/repository"
	"github.com/ManuelReschke/RecurFox/internal/pkg/database"
	"github.com/ManuelReschke/RecurFox/internal/pkg/mirror"
	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 50
const maxPageSize = 200

// pagination reads offset/limit query parameters with sane bounds.
func pagination(c *fiber.Ctx) (int, int) {
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := c.QueryInt("limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// newMirrorService wires the reconciliation engine against the shared
// database handle and the provider client configured from the environment.
func newMirrorService() *mirror.Service {
	repo := mirror.NewRepository(database.GetDB())
	return mirror.NewService(repo, recurly.NewClientFromEnv(), mirror.DefaultUserResolver(repo))
}

func repos() *repository.Repositories {
	return repository.GetGlobalRepositories()
}
