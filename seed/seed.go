// Package seed bundles the dataset a fresh install starts from.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/arkantrust/dealership-admin/backend/models"
)

//go:embed data/*.json
var files embed.FS

// Dataset is a full set of collections.
type Dataset struct {
	Cars   []models.Car
	Orders []models.Order
	Users  []models.User
}

// Load decodes the embedded seed files.
func Load() (Dataset, error) {
	var ds Dataset
	if err := decode("data/cars.json", &ds.Cars); err != nil {
		return Dataset{}, err
	}
	if err := decode("data/orders.json", &ds.Orders); err != nil {
		return Dataset{}, err
	}
	if err := decode("data/users.json", &ds.Users); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func decode(name string, v any) error {
	data, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode seed %s: %w", name, err)
	}
	return nil
}
