// Retainer keeps directories in check by age.
//
// It deletes files older than a retention policy, migrates them into an
// archive tree, or evicts the oldest files once a directory outgrows a size
// limit. Tasks run on cron schedules inside a daemon or once from the
// command line.
//
// Usage:
//
//	# Run the daemon with the tasks in config.yaml
//	retainer run --config /etc/retainer/config.yaml
//
//	# Run configured tasks once
//	retainer sweep app-logs
//
//	# Ad-hoc operations
//	retainer delete /var/tmp/app --age 7d --prune
//	retainer migrate /srv/spool /mnt/archive --age 6mo
//	retainer evict /var/cache/app --max-size 10GB
//	retainer list /var/log/app
//
//	# Recent runs from the journal
//	retainer history app-logs
package main

func main() {
	Execute()
}
