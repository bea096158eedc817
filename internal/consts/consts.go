package consts

const (
	// TasksKeyPrefix prefixes per-user cached task snapshots in Redis.
	TasksKeyPrefix = "ts:"
	// TaskUpdatesChannel carries record-store push notifications.
	TaskUpdatesChannel = "task-updates"
)
