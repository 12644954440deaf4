package steps

const (
	ReminderProbability = 0.075
	ReminderCooldown    = 10
)

const SocraticReminder = "\n\n---\n*Quick reminder: I'm here to help you think it through, not to think for you. The best answers usually come from the person closest to the floor, so push back and tell me what you're seeing.*"

// ShouldAppendReminder applies the probability draw and the cooldown, where
// messageCount includes the assistant message being finalized and
// lastIndex is the count recorded at the previous insertion.
func ShouldAppendReminder(draw float64, messageCount, lastIndex int) bool {
	if draw >= ReminderProbability {
		return false
	}
	return messageCount-lastIndex >= ReminderCooldown
}
