// Package sandbox generates reproducible demo data for development and
// demo environments: hospitals with their services, staff accounts,
// patients and a welcome notification per account.
package sandbox

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/medisys/hms/internal/domain/clinic"
	"github.com/medisys/hms/internal/domain/hospital"
	"github.com/medisys/hms/internal/domain/user"
	"github.com/medisys/hms/internal/platform/auth"
)

// SeedConfig controls the volume of generated data.
type SeedConfig struct {
	Hospitals           int    `json:"hospitals"`
	ServicesPerHospital int    `json:"servicesPerHospital"`
	DoctorsPerHospital  int    `json:"doctorsPerHospital"`
	PatientsPerHospital int    `json:"patientsPerHospital"`
	Password            string `json:"-"`
	Seed                int64  `json:"seed"`
}

// DefaultSeedConfig returns a small but complete data set.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Hospitals:           3,
		ServicesPerHospital: 4,
		DoctorsPerHospital:  5,
		PatientsPerHospital: 20,
		Password:            "changeme123",
		Seed:                42,
	}
}

func (c SeedConfig) validate() error {
	if c.Hospitals < 1 {
		return fmt.Errorf("hospitals must be at least 1, got %d", c.Hospitals)
	}
	if c.ServicesPerHospital < 0 || c.DoctorsPerHospital < 0 || c.PatientsPerHospital < 0 {
		return fmt.Errorf("per-hospital counts must not be negative")
	}
	if len(c.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// Account is a user to create together with its clear-text password.
type Account struct {
	User     *user.User
	Password string
}

type DoctorSeed struct {
	Account Account
	Doctor  *clinic.Doctor
}

type PatientSeed struct {
	Account Account
	Patient *clinic.Patient
}

// HospitalSeed is one hospital and everything attached to it. Foreign keys
// are filled in when the seed is stored.
type HospitalSeed struct {
	Hospital *hospital.Hospital
	Services []*hospital.MedicalService
	Director Account
	Chief    Account
	Doctors  []DoctorSeed
	Patients []PatientSeed
}

// Dataset is the output of Generate.
type Dataset struct {
	Admin     Account
	Hospitals []HospitalSeed
}

// Accounts returns the number of user accounts in d.
func (d *Dataset) Accounts() int {
	n := 1
	for _, h := range d.Hospitals {
		n += 2 + len(h.Doctors) + len(h.Patients)
	}
	return n
}

var (
	firstNames = []string{"Alice", "Bruno", "Chloé", "David", "Emma", "Farid", "Gaëlle", "Hugo", "Inès", "Jules", "Karim", "Léa", "Marc", "Nadia", "Omar", "Paula"}
	lastNames  = []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand", "Leroy", "Moreau", "Simon", "Laurent"}
	cities     = []string{"Lyon", "Paris", "Marseille", "Lille", "Nantes", "Bordeaux", "Toulouse"}
	streets    = []string{"rue de la République", "avenue Jean Jaurès", "boulevard Pasteur", "rue Victor Hugo"}
	prefixes   = []string{"Clinique", "Hôpital", "Centre Hospitalier", "Polyclinique"}
	suffixes   = []string{"Saint-Luc", "du Parc", "des Alpes", "Pasteur", "Sainte-Anne", "du Lac"}
	services   = []struct {
		name  string
		cents int64
	}{
		{"Consultation générale", 2500}, {"Radiologie", 6000}, {"Cardiologie", 5000},
		{"Pédiatrie", 3000}, {"Dermatologie", 4500}, {"Analyses sanguines", 1800},
		{"Kinésithérapie", 3500}, {"Urgences", 8000},
	}
	specialties = []string{"cardiology", "neurology", "pediatrics", "dermatology", "radiology", "general medicine", "oncology"}
	genders     = []string{"MALE", "FEMALE", "OTHER"}
	bloodTypes  = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
)

// DataGenerator produces deterministic data from a seed.
type DataGenerator struct {
	rng *rand.Rand
}

func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) randomPhone() string {
	return fmt.Sprintf("0%d %02d %02d %02d %02d", 1+g.rng.Intn(7), g.rng.Intn(100), g.rng.Intn(100), g.rng.Intn(100), g.rng.Intn(100))
}

func (g *DataGenerator) birthDate() *time.Time {
	d := time.Date(1940+g.rng.Intn(80), time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)
	return &d
}

func slug(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "é", "e", "è", "e", "ë", "e", "ô", "o", "-", "").Replace(s))
}

func (g *DataGenerator) account(role auth.Role, email, password string) Account {
	name := g.pick(firstNames) + " " + g.pick(lastNames)
	return Account{
		User:     &user.User{Name: name, Email: email, Role: role, Active: true},
		Password: password,
	}
}

// GenerateHospital builds hospital number i with its staff and patients.
func (g *DataGenerator) GenerateHospital(i int, cfg SeedConfig) HospitalSeed {
	city := cities[i%len(cities)]
	h := HospitalSeed{
		Hospital: &hospital.Hospital{
			Name:    fmt.Sprintf("%s %s %d", g.pick(prefixes), g.pick(suffixes), i+1),
			City:    city,
			Address: fmt.Sprintf("%d %s", 1+g.rng.Intn(150), g.pick(streets)),
			Phone:   g.randomPhone(),
			Status:  hospital.StatusActive,
		},
	}
	domain := fmt.Sprintf("h%d.%s.hms.local", i+1, slug(city))

	for _, k := range g.rng.Perm(len(services))[:min(cfg.ServicesPerHospital, len(services))] {
		s := services[k]
		h.Services = append(h.Services, &hospital.MedicalService{Name: s.name, PriceCents: s.cents})
	}

	h.Director = g.account(auth.RoleDirector, "director@"+domain, cfg.Password)
	h.Chief = g.account(auth.RoleChiefDoctor, "chief@"+domain, cfg.Password)
	for j := 0; j < cfg.DoctorsPerHospital; j++ {
		h.Doctors = append(h.Doctors, DoctorSeed{
			Account: g.account(auth.RoleDoctor, fmt.Sprintf("doctor%d@%s", j+1, domain), cfg.Password),
			Doctor:  &clinic.Doctor{Specialty: g.pick(specialties)},
		})
	}
	for j := 0; j < cfg.PatientsPerHospital; j++ {
		h.Patients = append(h.Patients, PatientSeed{
			Account: g.account(auth.RolePatient, fmt.Sprintf("patient%d@%s", j+1, domain), cfg.Password),
			Patient: &clinic.Patient{
				Gender:    g.pick(genders),
				BloodType: g.pick(bloodTypes),
				Phone:     g.randomPhone(),
				BirthDate: g.birthDate(),
			},
		})
	}
	return h
}

// Generate builds a complete data set. The same config always yields the
// same data.
func Generate(cfg SeedConfig) (*Dataset, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	g := NewDataGenerator(cfg.Seed)
	ds := &Dataset{Admin: g.account(auth.RoleAdmin, "admin@hms.local", cfg.Password)}
	for i := 0; i < cfg.Hospitals; i++ {
		ds.Hospitals = append(ds.Hospitals, g.GenerateHospital(i, cfg))
	}
	return ds, nil
}
