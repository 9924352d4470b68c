package cricket

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Team is a franchise with its display colours and historical names
type Team struct {
	Name    string   `yaml:"name" json:"name"`
	Short   string   `yaml:"short" json:"short"`
	Colors  []string `yaml:"colors" json:"colors,omitempty"`
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
}

// Catalog is the enumerated set of teams and venue cities a model knows about
type Catalog struct {
	Teams  []Team   `yaml:"teams" json:"teams"`
	Cities []string `yaml:"cities" json:"cities"`

	teamIndex map[string]string
	cityIndex map[string]struct{}
}

// LoadCatalog reads a YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Teams) < 2 {
		return nil, fmt.Errorf("catalog %s must list at least two teams", path)
	}
	if len(c.Cities) == 0 {
		return nil, fmt.Errorf("catalog %s must list at least one city", path)
	}

	c.index()
	return &c, nil
}

// DefaultCatalog returns the eight current franchises and the cities in the
// historical dataset.
func DefaultCatalog() *Catalog {
	c := &Catalog{
		Teams: []Team{
			{Name: "Chennai Super Kings", Short: "CSK", Colors: []string{"#FEE101", "#003C71"}},
			{Name: "Delhi Capitals", Short: "DC", Colors: []string{"#005DAA", "#FF2B2B"}, Aliases: []string{"Delhi Daredevils"}},
			{Name: "Kings XI Punjab", Short: "KXIP", Colors: []string{"#E42313", "#FFD700"}, Aliases: []string{"Punjab Kings"}},
			{Name: "Kolkata Knight Riders", Short: "KKR", Colors: []string{"#3B0A45", "#FFD700"}},
			{Name: "Mumbai Indians", Short: "MI", Colors: []string{"#004BA0", "#FFC72C"}},
			{Name: "Rajasthan Royals", Short: "RR", Colors: []string{"#FAB5E3", "#1A237E"}},
			{Name: "Royal Challengers Bangalore", Short: "RCB", Colors: []string{"#DA1818", "#000000"}, Aliases: []string{"Royal Challengers Bengaluru"}},
			{Name: "Sunrisers Hyderabad", Short: "SRH", Colors: []string{"#FF671F", "#FA4616"}, Aliases: []string{"Deccan Chargers"}},
		},
		Cities: []string{
			"Hyderabad", "Bangalore", "Mumbai", "Indore", "Kolkata", "Delhi",
			"Chandigarh", "Jaipur", "Chennai", "Cape Town", "Port Elizabeth",
			"Durban", "Centurion", "East London", "Johannesburg", "Kimberley",
			"Bloemfontein", "Ahmedabad", "Cuttack", "Nagpur", "Dharamsala",
			"Visakhapatnam", "Pune", "Raipur", "Ranchi", "Abu Dhabi",
			"Sharjah", "Mohali", "Bengaluru", "Dubai",
		},
	}
	c.index()
	return c
}

func (c *Catalog) index() {
	c.teamIndex = make(map[string]string)
	for _, t := range c.Teams {
		c.teamIndex[t.Name] = t.Name
		for _, alias := range t.Aliases {
			c.teamIndex[alias] = t.Name
		}
	}
	c.cityIndex = make(map[string]struct{}, len(c.Cities))
	for _, city := range c.Cities {
		c.cityIndex[city] = struct{}{}
	}
}

// HasTeam reports whether name is a team or one of its historical names
func (c *Catalog) HasTeam(name string) bool {
	_, ok := c.teamIndex[name]
	return ok
}

// HasCity reports whether city is a known venue city
func (c *Catalog) HasCity(city string) bool {
	_, ok := c.cityIndex[city]
	return ok
}

// Canonical maps a historical team name to its current name. Unknown names are
// returned unchanged.
func (c *Catalog) Canonical(name string) string {
	if canonical, ok := c.teamIndex[name]; ok {
		return canonical
	}
	return name
}

// Team looks up a team by name or alias
func (c *Catalog) Team(name string) (Team, bool) {
	canonical, ok := c.teamIndex[name]
	if !ok {
		return Team{}, false
	}
	for _, t := range c.Teams {
		if t.Name == canonical {
			return t, true
		}
	}
	return Team{}, false
}

// TeamNames returns the current team names sorted alphabetically
func (c *Catalog) TeamNames() []string {
	names := make([]string, 0, len(c.Teams))
	for _, t := range c.Teams {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// SortedCities returns the venue cities sorted alphabetically
func (c *Catalog) SortedCities() []string {
	cities := append([]string(nil), c.Cities...)
	sort.Strings(cities)
	return cities
}
