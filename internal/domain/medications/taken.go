package medications

// IsSatisfied indica si lastTaken cubre la ocurrencia: mismo día calendario y
// lastTaken >= instante de la toma. Una toma marcada cubre todas las del día
// hasta ese momento, nunca una posterior ni las de otro día.
func IsSatisfied(m Medication, o Occurrence) bool {
	if m.LastTaken == nil {
		return false
	}
	lt := m.LastTaken.In(o.At.Location())
	if !DateOf(lt).Equal(o.Day) {
		return false
	}
	return !lt.Before(o.At)
}
