package data

import (
	"math/rand"
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

var categories = []string{"Alimentação", "Transporte", "Taxi", "Pedágio", "Hospedagem"}
var departments = []string{"Financeiro", "Comercial", "Operações", "Tecnologia", "RH"}
var jobTitles = []string{"Analista", "Coordenador", "Gerente", "Especialista", "Diretor"}
var fraudLabels = []string{"nao", "sim"}

var categoryBase = map[string]float64{
	"Alimentação": 45, "Transporte": 120, "Taxi": 60, "Pedágio": 25, "Hospedagem": 320,
}
var jobFactor = map[string]float64{
	"Analista": 1, "Coordenador": 1.2, "Gerente": 1.5, "Especialista": 1.3, "Diretor": 2,
}

// GenerateExpenses builds a synthetic expense-report dataset whose categorical
// target "fraud" depends on a handful of red flags.
func GenerateExpenses(n int, fraudRate float64, seed int64) (*Dataset, error) {
	rng := rand.New(rand.NewSource(seed))
	attrs := []Attribute{
		{Name: "category", Kind: Categorical, Values: categories},
		{Name: "department", Kind: Categorical, Values: departments},
		{Name: "job_title", Kind: Categorical, Values: jobTitles},
		{Name: "amount", Kind: Numeric},
		{Name: "interval_days", Kind: Numeric},
		{Name: "same_approver", Kind: Numeric},
		{Name: "round_amount", Kind: Numeric},
		{Name: "fraud", Kind: Categorical, Values: fraudLabels},
	}
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		cat := rng.Intn(len(categories))
		dept := rng.Intn(len(departments))
		job := rng.Intn(len(jobTitles))
		amount := rng.Float64()*450 + 10
		round := rng.Float64() < 0.25
		if round {
			amount = float64(int(amount))
		}
		interval := float64(rng.Intn(30))
		if rng.Float64() < 0.05 {
			interval = -float64(rng.Intn(5) + 1)
		}
		sameApprover := rng.Float64() < 0.05

		score := 0.0
		flags := 0
		if sameApprover {
			score += 0.35
			flags++
		}
		if round {
			score += 0.15
			flags++
		}
		if interval < 0 {
			score += 0.3
			flags++
		}
		if categories[cat] == "Taxi" && amount > 200 {
			score += 0.2
			flags++
		}
		fraud := 0
		if flags >= 2 || interval < 0 || rng.Float64() < fraudRate+score {
			fraud = 1
		}
		rows[i] = []float64{
			float64(cat), float64(dept), float64(job),
			amount, interval, boolToFloat(sameApprover), boolToFloat(round),
			float64(fraud),
		}
	}
	return New("expenses", attrs, rows, len(attrs)-1)
}

// GenerateCosts builds a synthetic dataset whose numeric target "amount" is a
// noisy function of category, seniority and trip length.
func GenerateCosts(n int, noise float64, seed int64) (*Dataset, error) {
	rng := rand.New(rand.NewSource(seed))
	attrs := []Attribute{
		{Name: "category", Kind: Categorical, Values: categories},
		{Name: "job_title", Kind: Categorical, Values: jobTitles},
		{Name: "nights", Kind: Numeric},
		{Name: "distance_km", Kind: Numeric},
		{Name: "amount", Kind: Numeric},
	}
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		cat := rng.Intn(len(categories))
		job := rng.Intn(len(jobTitles))
		nights := float64(rng.Intn(6))
		distance := rng.Float64() * 800
		amount := categoryBase[categories[cat]]*jobFactor[jobTitles[job]] + 90*nights + 0.35*distance
		amount += rng.NormFloat64() * noise
		rows[i] = []float64{float64(cat), float64(job), nights, distance, amount}
	}
	return New("costs", attrs, rows, len(attrs)-1)
}

func WriteCSVFile(path string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Trace(err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	return WriteCSV(f, d)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
