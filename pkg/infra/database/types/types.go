package types

import (
	"database/sql/driver"
	"fmt"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/lib/pq"
)

// AttackTypeArray binds a set of attack types as a postgres text[].
type AttackTypeArray []verdict.AttackType

func (a AttackTypeArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	strs := make([]string, len(a))
	for i, t := range a {
		strs[i] = string(t)
	}
	return pq.Array(strs).Value()
}

func (a *AttackTypeArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var strs []string
	if err := pq.Array(&strs).Scan(value); err != nil {
		return fmt.Errorf("failed to scan attack type array: %w", err)
	}
	out := make(AttackTypeArray, len(strs))
	for i, s := range strs {
		t, err := verdict.ParseAttackType(s)
		if err != nil {
			return err
		}
		out[i] = t
	}
	*a = out
	return nil
}
