// Package metrics define las métricas Prometheus del flujo de
// autenticación y del ticket store. Paquete standalone para evitar ciclos
// de import entre los clientes y el HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Intentos de autenticación por cliente y resultado",
	}, []string{"client", "result"})

	TicketsSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cas_tickets_saved_total",
		Help: "Proxy granting tickets almacenados",
	})

	TicketsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cas_tickets_consumed_total",
		Help: "Proxy granting tickets consumidos por el flujo principal",
	})

	TicketsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cas_tickets_evicted_total",
		Help: "Proxy granting tickets expirados por el sweep",
	})
)

// Register registra las métricas en el registry dado (default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthAttempts, TicketsSaved, TicketsConsumed, TicketsEvicted} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
