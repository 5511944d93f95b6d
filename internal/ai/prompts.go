package ai

import "fmt"

func extractPrompt(today string) string {
	return fmt.Sprintf(`You manage bookings for a recording studio. Today is %s.
Extract booking details from the message below and answer with a single JSON
object, no prose, with any of these keys you can determine:
client_name, phone_number, date (YYYY-MM-DD), start_time (HH:MM, 24-hour),
duration_hours (number), type, notes.
Resolve relative dates like "tomorrow" against today's date. Omit keys you
cannot determine.`, today)
}

func chatPrompt(bookingsJSON, question string) string {
	return fmt.Sprintf(`You are an assistant for a recording studio's booking
system. The current bookings are listed below as JSON. Answer the question
using only this data. Be concise.

Bookings:
%s

Question: %s`, bookingsJSON, question)
}
