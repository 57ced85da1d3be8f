package services

import (
	"log"
	"sync"
	"time"
)

// scheduledTask es una tarea periódica registrada en el Scheduler.
type scheduledTask struct {
	name     string
	interval time.Duration
	fn       func()

	mutex   sync.Mutex
	running bool
}

// run ejecuta la tarea si no hay otra corrida en curso. Si la corrida anterior
// todavía no terminó, este disparo se omite y se registra en el log.
func (t *scheduledTask) run() {
	t.mutex.Lock()
	if t.running {
		t.mutex.Unlock()
		log.Printf("Tarea %s todavía en ejecución, se omite este disparo", t.name)
		return
	}
	t.running = true
	t.mutex.Unlock()

	defer func() {
		t.mutex.Lock()
		t.running = false
		t.mutex.Unlock()
	}()

	t.fn()
}

// Scheduler ejecuta tareas periódicas en segundo plano: el tick horario de
// simulación, el barrido de liquidación y la limpieza semanal.
type Scheduler struct {
	tasks     []*scheduledTask
	isRunning bool
	stopChan  chan struct{}
	mutex     sync.Mutex
}

// NewScheduler crea un scheduler vacío.
func NewScheduler() *Scheduler {
	return &Scheduler{
		stopChan: make(chan struct{}),
	}
}

// Register agrega una tarea periódica. Debe llamarse antes de Start.
func (s *Scheduler) Register(name string, interval time.Duration, fn func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tasks = append(s.tasks, &scheduledTask{
		name:     name,
		interval: interval,
		fn:       fn,
	})
}

// Start lanza una goroutine por tarea. Cada tarea se ejecuta una vez al
// iniciar y luego en cada tick de su intervalo.
func (s *Scheduler) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})

	for _, task := range s.tasks {
		go func(t *scheduledTask) {
			ticker := time.NewTicker(t.interval)
			defer ticker.Stop()

			// Ejecutar inmediatamente al iniciar
			t.run()

			for {
				select {
				case <-ticker.C:
					go t.run()
				case <-s.stopChan:
					return
				}
			}
		}(task)

		log.Printf("Tarea %s registrada con intervalo de %v", task.name, task.interval)
	}

	log.Printf("Scheduler iniciado con %d tareas", len(s.tasks))
}

// Stop detiene todas las tareas. Las corridas en curso terminan solas.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isRunning {
		return
	}

	s.isRunning = false
	close(s.stopChan)
	log.Println("Scheduler detenido")
}
