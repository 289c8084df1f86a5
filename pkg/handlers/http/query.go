package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/gofiber/fiber/v2"
)

// intQuery reads an integer query parameter, using def when it is absent.
func intQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", name)
	}
	return val, nil
}

// attackTypesQuery parses a comma separated list of attack types.
func attackTypesQuery(c *fiber.Ctx, name string) ([]verdict.AttackType, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	var types []verdict.AttackType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := verdict.ParseAttackType(part)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}
