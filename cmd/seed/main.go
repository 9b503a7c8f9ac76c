package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/centrobenavente/booking-server/internal/catalog"
	"github.com/centrobenavente/booking-server/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedServices(context.Background(), pool); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedRules(context.Background(), pool); err != nil {
		log.Fatalf("seed availability rules: %v", err)
	}
	if err := seedContent(context.Background(), pool); err != nil {
		log.Fatalf("seed site content: %v", err)
	}
	if err := seedReviews(context.Background(), pool, 12); err != nil {
		log.Fatalf("seed reviews: %v", err)
	}

	log.Println("seed complete")
}

type serviceSeed struct {
	title            string
	description      string
	shortDescription string
	icon             string
	price            int
	duration         int
	resourceType     catalog.ResourceType
	order            int
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	services := []serviceSeed{
		{
			title:            "Curaciones Simples",
			description:      "Atención profesional para heridas menores, cortes superficiales y cuidados básicos de lesiones. Incluye limpieza, desinfección y vendaje con materiales estériles de alta calidad.",
			shortDescription: "Atención de heridas menores y cortes superficiales",
			icon:             "heart",
			price:            15000,
			duration:         30,
			resourceType:     catalog.ResourceNurse,
			order:            1,
		},
		{
			title:            "Curaciones Avanzadas",
			description:      "Tratamiento especializado para heridas complejas, úlceras por presión, pie diabético, quemaduras y heridas post-quirúrgicas. Utilizamos técnicas avanzadas de curación y materiales especializados.",
			shortDescription: "Tratamiento de heridas complejas y úlceras",
			icon:             "heart",
			price:            25000,
			duration:         45,
			resourceType:     catalog.ResourceNurse,
			order:            2,
		},
		{
			title:            "Retiro de Suturas",
			description:      "Retiro seguro y profesional de puntos de sutura post-quirúrgicos. Evaluamos la cicatrización y brindamos indicaciones de cuidado posterior para una óptima recuperación.",
			shortDescription: "Retiro profesional de puntos post-quirúrgicos",
			icon:             "scissors",
			price:            12000,
			duration:         20,
			resourceType:     catalog.ResourceNurse,
			order:            3,
		},
		{
			title:            "Administración de Tratamientos",
			description:      "Aplicación de medicamentos inyectables (intramuscular, subcutáneo, intravenoso) según indicación médica. Incluye inyecciones, sueros y tratamientos prescritos por su médico.",
			shortDescription: "Aplicación de medicamentos e inyecciones",
			icon:             "syringe",
			price:            10000,
			duration:         25,
			resourceType:     catalog.ResourceNurse,
			order:            4,
		},
		{
			title:            "Procedimientos de Enfermería",
			description:      "Diversos procedimientos de enfermería incluyendo control de signos vitales, sondajes, instalación de vías, cambio de bolsas colectoras, y otros cuidados especializados.",
			shortDescription: "Control de signos vitales y procedimientos varios",
			icon:             "stethoscope",
			price:            18000,
			duration:         40,
			resourceType:     catalog.ResourceNurse,
			order:            5,
		},
		{
			title:            "Traslado Simple de Pacientes",
			description:      "Servicio de acompañamiento y asistencia en el traslado de pacientes con movilidad reducida. Incluye apoyo para levantarse, caminar y movilizarse de manera segura.",
			shortDescription: "Asistencia en movilización de pacientes",
			icon:             "car",
			price:            20000,
			duration:         60,
			resourceType:     catalog.ResourceDriver,
			order:            6,
		},
	}

	log.Printf("seeding %d services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range services {
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, title, slug, description, short_description, icon,
				price, price_type, duration_minutes, resource_type, is_active, display_order,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, now(), now())
			ON CONFLICT (slug) DO NOTHING
		`, uuid.New(), s.title, catalog.Slugify(s.title), s.description, s.shortDescription,
			s.icon, s.price, catalog.PriceFixed, s.duration, s.resourceType, s.order)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("services seeded")
	return nil
}

type ruleSeed struct {
	dayOfWeek    int
	startTime    string
	endTime      string
	slotMinutes  int
	resourceType string
}

func seedRules(ctx context.Context, pool *pgxpool.Pool) error {
	var rules []ruleSeed

	// Nurses: weekday mornings and afternoons, Saturday mornings.
	for day := 1; day <= 5; day++ {
		rules = append(rules,
			ruleSeed{day, "08:00", "13:00", 60, "nurse"},
			ruleSeed{day, "14:00", "18:00", 60, "nurse"},
		)
	}
	rules = append(rules, ruleSeed{6, "09:00", "14:00", 60, "nurse"})

	// Drivers: continuous weekday shifts, Saturday mornings.
	for day := 1; day <= 5; day++ {
		rules = append(rules, ruleSeed{day, "08:00", "18:00", 60, "driver"})
	}
	rules = append(rules, ruleSeed{6, "09:00", "14:00", 60, "driver"})

	log.Printf("seeding %d availability rules", len(rules))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM availability_rules`); err != nil {
		return err
	}
	for _, r := range rules {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_rules (id, day_of_week, start_time, end_time,
				slot_minutes, max_bookings, resource_type, service_id, is_active,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 1, $6, NULL, TRUE, now(), now())
		`, uuid.New(), r.dayOfWeek, r.startTime, r.endTime, r.slotMinutes, r.resourceType)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("availability rules seeded")
	return nil
}

func seedContent(ctx context.Context, pool *pgxpool.Pool) error {
	blocks := map[string]string{
		"hero_title":     "Cuidados de enfermería a domicilio",
		"hero_subtitle":  "Atención profesional en la comodidad de tu hogar, en Santiago y alrededores.",
		"about_text":     "Centro Benavente entrega servicios de enfermería a domicilio con un equipo de profesionales certificados.",
		"contact_phone":  "+56 9 1015 5119",
		"contact_email":  "contacto@centrobenavente.cl",
		"contact_hours":  "Lunes a Viernes 08:00-18:00, Sábado 09:00-14:00",
		"footer_address": "Santiago, Chile",
	}

	log.Printf("seeding %d content blocks", len(blocks))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for key, value := range blocks {
		_, err := tx.Exec(ctx, `
			INSERT INTO site_content (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO NOTHING
		`, key, value)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("content blocks seeded")
	return nil
}

// seedReviews fills the testimonial wall with plausible demo data.
func seedReviews(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d reviews", count)

	roles := []string{"Paciente", "Familiar de paciente", "Paciente frecuente"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO reviews (id, user_id, name, role, content, rating,
				is_approved, is_featured, created_at, updated_at)
			VALUES ($1, NULL, $2, $3, $4, $5, TRUE, $6, now(), now())
		`, uuid.New(),
			gofakeit.Name(),
			roles[gofakeit.Number(0, len(roles)-1)],
			gofakeit.Sentence(12),
			gofakeit.Number(4, 5),
			i < 3)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("reviews seeded")
	return nil
}
