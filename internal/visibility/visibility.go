// Package visibility содержит чистые функции видимости рейсов и билетов.
// Функции не обращаются к общему состоянию и работают только над переданными
// снимками данных, поэтому безопасны для конкурентных вызовов без синхронизации.
// Все сравнения дат выполняются в одной операционной зоне вызывающей стороны.
package visibility

import (
	"time"

	"BusTicketPlatform/internal/domain"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// VisibleRides возвращает рейсы, видимые аудитории.
// Рейс включается тогда и только тогда, когда его персистентный флаг archived
// снят И его id отсутствует в клиентском оверлее. Предикаты независимы и
// объединяются логическим И, ни один не перекрывает другой.
// Относительный порядок входа сохраняется.
func VisibleRides(rides []*domain.Ride, overlayIDs map[string]struct{}) []*domain.Ride {
	visible := make([]*domain.Ride, 0, len(rides))
	for _, ride := range rides {
		if ride.Archived {
			continue
		}
		if _, hidden := overlayIDs[ride.ID]; hidden {
			continue
		}
		visible = append(visible, ride)
	}
	return visible
}

// UpcomingTickets возвращает билеты, которые еще не отправились относительно
// referenceInstant. Билет считается предстоящим, если пара (дата, время)
// лексикографически не меньше пары (дата, время) опорного момента — одно
// комбинированное сравнение, а не два независимых.
func UpcomingTickets(tickets []*domain.Ticket, referenceInstant time.Time) []*domain.Ticket {
	refDate := referenceInstant.Format(dateLayout)
	refTime := referenceInstant.Format(timeLayout)

	upcoming := make([]*domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if isUpcoming(ticket, refDate, refTime) {
			upcoming = append(upcoming, ticket)
		}
	}
	return upcoming
}

// isUpcoming сравнивает (дата, время) билета с опорной парой лексикографически.
// ISO формат дат и 24-часовой HH:MM сортируются как строки.
func isUpcoming(ticket *domain.Ticket, refDate, refTime string) bool {
	if ticket.DepartureDate != refDate {
		return ticket.DepartureDate > refDate
	}
	return ticket.DepartureTime >= refTime
}

// TicketsOnDate возвращает билеты с точным совпадением календарной даты,
// независимо от времени отправления.
func TicketsOnDate(tickets []*domain.Ticket, date time.Time) []*domain.Ticket {
	wanted := date.Format(dateLayout)

	matched := make([]*domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.DepartureDate == wanted {
			matched = append(matched, ticket)
		}
	}
	return matched
}

// RideIDsWithUpcomingTickets возвращает множество id рейсов, на которые есть
// хотя бы один предстоящий билет. Шаблон рейса остается в системе бессрочно,
// но исчезает из активного списка водителя, когда все его билеты отправились.
func RideIDsWithUpcomingTickets(tickets []*domain.Ticket, referenceInstant time.Time) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, ticket := range UpcomingTickets(tickets, referenceInstant) {
		ids[ticket.RideID] = struct{}{}
	}
	return ids
}
