package report

import (
	"fmt"

	"github.com/roach88/wellbeing/internal/database"
)

const averages = `
        AVG(sleep_time) as avg_sleep_time,
        AVG(sports_time) as avg_sports_time,
        AVG(studying_time) as avg_studying_time,
        AVG(sleep_quality) as avg_sleep_quality,
        AVG(mood) as avg_mood`

type queries struct {
	byDate          string
	generalByDate   string
	generalPastWeek string
	userWeek        string
	userMonth       string
	moodTwoDays     string
	insertMorning   string
	insertEvening   string
	delete          string
}

func buildQueries(d database.Dialect) queries {
	return queries{
		byDate: "SELECT * FROM user_data WHERE user_id = $1 AND date = $2;",
		generalByDate: fmt.Sprintf(`
    SELECT %s
    FROM user_data
    WHERE date = $1;`, averages),
		generalPastWeek: fmt.Sprintf(`
    SELECT %s
    FROM user_data
    WHERE date > %s;`, averages, d.DaysAgo(7)),
		userWeek: fmt.Sprintf(`
    SELECT %s
    FROM user_data
    WHERE
        user_id = $1
        AND %s = $2;`, averages, d.WeekOf("date")),
		userMonth: fmt.Sprintf(`
    SELECT %s
    FROM user_data
    WHERE
        user_id = $1
        AND %s = $2;`, averages, d.MonthOf("date")),
		moodTwoDays: `
    SELECT
        date,
        AVG(mood) as avg_mood
    FROM user_data
    WHERE
        user_id = $1
        AND (date = $2
        OR date = $3)
    GROUP BY date
    ORDER BY date DESC;`,
		insertMorning: `INSERT INTO user_data (
            sleep_time,
            sleep_quality,
            mood,
            date,
            user_id )
        VALUES ($1, $2, $3, $4, $5);`,
		insertEvening: `INSERT INTO user_data (
            sports_time,
            studying_time,
            eating_quality,
            mood,
            date,
            user_id )
        VALUES ($1, $2, $3, $4, $5, $6);`,
		delete: "DELETE FROM user_data WHERE id = $1 AND user_id = $2;",
	}
}
