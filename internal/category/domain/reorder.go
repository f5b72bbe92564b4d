package domain

import (
	"fmt"

	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// ParseReorderEntries validates a client reorder request. The body may be a
// bare array or an object wrapping one under any of the given list keys; each
// entry needs an ID under one of the idKeys plus a numeric order or position.
// The noun names the entity in error messages (categoria, tarea).
func ParseReorderEntries(raw interface{}, listKeys, idKeys []string, noun string) ([]Assignment, error) {
	entries, ok := raw.([]interface{})
	if !ok {
		if object, isObject := raw.(map[string]interface{}); isObject {
			for _, key := range listKeys {
				if list, found := object[key].([]interface{}); found {
					entries = list
					break
				}
			}
		}
	}
	if len(entries) == 0 {
		return nil, apperr.Validation(fmt.Sprintf("Se requiere un arreglo de %ss para reordenar", noun))
	}

	assignments := make([]Assignment, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		object, isObject := entry.(map[string]interface{})
		if !isObject {
			return nil, apperr.Validation(fmt.Sprintf("Entrada %d invalida", i))
		}
		id := payload.FirstString(object, idKeys...)
		if id == "" {
			return nil, apperr.Validation(fmt.Sprintf("La entrada %d no tiene id de %s", i, noun))
		}
		if seen[id] {
			return nil, apperr.Validation(fmt.Sprintf("La %s %s esta duplicada en el reordenamiento", noun, id))
		}
		orderSource, _ := payload.FirstPresent(object, "order", "position")
		orderNumber, numeric := payload.Number(orderSource)
		if !numeric {
			return nil, apperr.Validation(fmt.Sprintf("La %s %s requiere un valor numerico para order", noun, id))
		}
		seen[id] = true
		assignments = append(assignments, Assignment{ID: id, Order: int64(orderNumber)})
	}
	return assignments, nil
}
