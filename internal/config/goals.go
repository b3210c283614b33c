package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Goals are the daily nutrition targets used by the consumption summary.
type Goals struct {
	Calories     float64 `mapstructure:"calories" json:"calories"`
	Protein      float64 `mapstructure:"protein" json:"protein"`
	FatTotal     float64 `mapstructure:"fat_total" json:"fat_total"`
	Carbohydrate float64 `mapstructure:"carbohydrate" json:"carbohydrate"`
	DietaryFibre float64 `mapstructure:"dietary_fibre_g" json:"dietary_fibre_g"`
}

func DefaultGoals() Goals {
	return Goals{
		Calories:     2500,
		Protein:      150,
		FatTotal:     65,
		Carbohydrate: 250,
		DietaryFibre: 25,
	}
}

type GoalsHolder struct {
	current atomic.Value // holds Goals
}

// NewStaticGoalsHolder returns a holder that never reloads.
func NewStaticGoalsHolder(goals Goals) *GoalsHolder {
	holder := &GoalsHolder{}
	holder.current.Store(goals)
	return holder
}

func NewGoalsHolder() (*GoalsHolder, error) {
	v := viper.New()

	v.SetConfigName("goals")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/mealplan")
	v.AddConfigPath("data")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MEALPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGoals()
	v.SetDefault("goals.calories", defaults.Calories)
	v.SetDefault("goals.protein", defaults.Protein)
	v.SetDefault("goals.fat_total", defaults.FatTotal)
	v.SetDefault("goals.carbohydrate", defaults.Carbohydrate)
	v.SetDefault("goals.dietary_fibre_g", defaults.DietaryFibre)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	var goals Goals
	if err := v.UnmarshalKey("goals", &goals); err != nil {
		return nil, err
	}
	if err := validateGoals(goals); err != nil {
		return nil, err
	}

	holder := NewStaticGoalsHolder(goals)

	if found && getenvBool("GOALS_WATCH", true) {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated Goals
			if err := v.UnmarshalKey("goals", &updated); err != nil {
				log.Printf("[goals-config] reload failed: %v", err)
				return
			}
			if err := validateGoals(updated); err != nil {
				log.Printf("[goals-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[goals-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *GoalsHolder) Get() Goals {
	if h == nil {
		return DefaultGoals()
	}
	return h.current.Load().(Goals)
}

func validateGoals(g Goals) error {
	if g.Calories <= 0 || g.Protein <= 0 || g.FatTotal <= 0 || g.Carbohydrate <= 0 || g.DietaryFibre <= 0 {
		return errors.New("goals must all be positive")
	}
	return nil
}
