// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package charts

import (
	"github.com/tomtom215/dashflow/internal/pipeline"
	"github.com/tomtom215/dashflow/internal/rows"
)

// Chart categories used by the built-in catalogue.
const (
	CategorySalaries  = "salaries"
	CategoryCompanies = "companies"
	CategoryTrends    = "trends"
	CategorySkills    = "skills"
)

const hourly = 3600

// Builtin returns the built-in chart catalogue. Each call returns a fresh
// copy that callers may modify.
func Builtin() []Definition {
	return []Definition{
		{
			ID:          "ai-salary-premium",
			Name:        "Are AI/ML Engineers Earning More Than Software Engineers?",
			Description: "Salary premium of AI/ML roles over software engineering roles by month",
			Category:    CategorySalaries,
			Tags:        []string{"ai", "swe", "comparison", "trends", "premium"},
			Methodology: "Monthly averages from postings with salary information. Premium is " +
				"(AI/ML avg salary - SWE avg salary) / SWE avg salary as a percentage, rounded to one decimal. " +
				"Salaries outside $100k-$2M are excluded.",
			View:                   "monthly_ai_vs_swe_salary_trends",
			RefreshIntervalSeconds: hourly,
			Schema: rows.Schema{
				Temporal: []string{"month"},
				Numeric:  []string{"avg_salary", "median_salary", "job_count"},
			},
			Options: pipeline.Options{
				BucketField:   "month",
				BucketLayout:  "2006-01",
				CategoryField: "role_category",
				ValueField:    "avg_salary",
				CategoryColumns: map[string]string{
					"AI/ML Engineer":    "ai_salary",
					"Software Engineer": "swe_salary",
				},
				Ratio:          &pipeline.RatioOptions{A: "ai_salary", B: "swe_salary", Out: "premium"},
				SortField:      "month",
				SortAscending:  true,
				PrimaryField:   "ai_salary",
				SecondaryField: "swe_salary",
				MetadataFields: []string{"premium"},
			},
		},
		{
			ID:          "ai-roles-salary",
			Name:        "Which AI/ML Roles Pay the Most?",
			Description: "Average salary across AI/ML specializations",
			Category:    CategorySalaries,
			Tags:        []string{"ai", "ml", "roles", "comparison", "specialization"},
			Methodology: "Weighted average salary by AI/ML subcategory using job counts as weights. " +
				"Salaries are range midpoints normalized to annual.",
			View:                   "ai_ml_subcategory_analysis",
			RefreshIntervalSeconds: hourly,
			Schema:                 rows.Schema{Numeric: []string{"avg_salary", "job_count"}},
			Options: pipeline.Options{
				GroupByField:   "ai_ml_subcategory",
				Aggregate:      pipeline.AggregateWeightedAverage,
				ValueField:     "avg_salary",
				WeightField:    "job_count",
				SortField:      "avg_salary",
				SecondaryField: "job_count",
			},
		},
		{
			ID:          "top-companies-hiring",
			Name:        "Which Companies Are Hiring the Most AI/ML Engineers?",
			Description: "Top 25 companies by AI/ML postings, filterable by month",
			Category:    CategoryCompanies,
			Tags:        []string{"companies", "hiring", "ai", "ml", "volume"},
			Methodology: "Jobs is the count of postings; average salary is weighted by postings " +
				"across the selected months.",
			Query: `SELECT
  data_company,
  strftime(data_posted, '%b') AS month,
  COUNT(*) AS job_count,
  AVG(max_salary) AS avg_salary
FROM {{dataset}}.ai_ml_jobs_with_salary
WHERE data_company IS NOT NULL
  AND data_posted IS NOT NULL
GROUP BY data_company, month`,
			RefreshIntervalSeconds: hourly,
			Schema:                 rows.Schema{Numeric: []string{"job_count", "avg_salary"}},
			Options: pipeline.Options{
				FilterFields:   []string{"month"},
				GroupByField:   "data_company",
				Aggregate:      pipeline.AggregateWeightedAverage,
				ValueField:     "avg_salary",
				WeightField:    "job_count",
				SortField:      "job_count",
				TopN:           25,
				PrimaryField:   "job_count",
				SecondaryField: "avg_salary",
			},
		},
		{
			ID:          "salary-by-role-type",
			Name:        "How Do AI/ML Role Types Compare in Salary?",
			Description: "Median salary with interquartile range per AI/ML role type",
			Category:    CategorySalaries,
			Tags:        []string{"salaries", "roles", "ai", "ml", "comparison"},
			Methodology: "Median salary with the 25th-75th percentile range. Only role types " +
				"with 50 or more postings are shown.",
			Query: `SELECT
  ai_ml_subcategory,
  COUNT(*) AS job_count,
  ROUND(AVG(max_salary), 0) AS avg_salary,
  ROUND(quantile_disc(max_salary, 0.5), 0) AS median_salary,
  ROUND(quantile_disc(max_salary, 0.25), 0) AS p25_salary,
  ROUND(quantile_disc(max_salary, 0.75), 0) AS p75_salary
FROM {{dataset}}.ai_ml_jobs_with_salary
WHERE ai_ml_subcategory IS NOT NULL
  AND ai_ml_subcategory != 'Other AI/ML'
GROUP BY ai_ml_subcategory
HAVING COUNT(*) >= 50
ORDER BY median_salary DESC`,
			RefreshIntervalSeconds: hourly,
			Schema: rows.Schema{Numeric: []string{
				"job_count", "avg_salary", "median_salary", "p25_salary", "p75_salary",
			}},
			Options: pipeline.Options{
				SortField:      "median_salary",
				LabelField:     "ai_ml_subcategory",
				PrimaryField:   "median_salary",
				LowerField:     "p25_salary",
				UpperField:     "p75_salary",
				MetadataFields: []string{"job_count", "avg_salary"},
			},
		},
		{
			ID:          "company-salary-ranges",
			Name:        "What Do the Biggest AI/ML Employers Pay?",
			Description: "Median posted salary with interquartile range for the top 20 AI/ML employers",
			Category:    CategoryCompanies,
			Tags:        []string{"companies", "salaries", "ai", "ml", "range"},
			Methodology: "Percentiles of the maximum posted salary per company, over the 20 " +
				"companies with the most AI/ML postings.",
			Query: `WITH top_companies AS (
  SELECT data_company, COUNT(*) AS total_jobs
  FROM {{dataset}}.ai_ml_jobs_with_salary
  WHERE data_company IS NOT NULL
  GROUP BY data_company
  ORDER BY total_jobs DESC
  LIMIT 20
)
SELECT j.data_company, j.max_salary, j.ai_ml_subcategory, j.title_level
FROM {{dataset}}.ai_ml_jobs_with_salary j
INNER JOIN top_companies tc ON j.data_company = tc.data_company
WHERE j.data_job_title IS NOT NULL`,
			RefreshIntervalSeconds: hourly,
			Schema:                 rows.Schema{Numeric: []string{"max_salary"}},
			Options: pipeline.Options{
				FilterFields:   []string{"ai_ml_subcategory", "title_level"},
				GroupByField:   "data_company",
				Aggregate:      pipeline.AggregatePercentileBands,
				ValueField:     "max_salary",
				SortField:      pipeline.FieldP50,
				TopN:           20,
				MetadataFields: []string{pipeline.CountField},
			},
		},
		{
			ID:          "salary-distribution",
			Name:        "How Are Salaries Distributed Across the Market?",
			Description: "Job postings per salary band",
			Category:    CategorySalaries,
			Tags:        []string{"salaries", "distribution", "bands"},
			Methodology: "Postings grouped into six bands by maximum salary, limited to " +
				"disclosed salaries between $100K and $2M.",
			Query: `SELECT
  salary_band,
  job_count,
  avg_salary,
  median_salary,
  remote_jobs,
  unique_companies
FROM {{dataset}}.salary_distribution_by_bands
ORDER BY
  CASE salary_band
    WHEN '$100K-$150K' THEN 1
    WHEN '$150K-$200K' THEN 2
    WHEN '$200K-$300K' THEN 3
    WHEN '$300K-$500K' THEN 4
    WHEN '$500K-$1M' THEN 5
    WHEN '$1M+' THEN 6
  END`,
			RefreshIntervalSeconds: hourly,
			Schema: rows.Schema{Numeric: []string{
				"job_count", "avg_salary", "median_salary", "remote_jobs", "unique_companies",
			}},
			Options: pipeline.Options{
				LabelField:     "salary_band",
				PrimaryField:   "job_count",
				SecondaryField: "median_salary",
				MetadataFields: []string{"avg_salary", "remote_jobs", "unique_companies"},
			},
		},
		{
			ID:          "aiml-skills-demand",
			Name:        "What Skills Are Most In-Demand for AI/ML Roles?",
			Description: "Top technical skills mentioned in AI/ML job postings",
			Category:    CategorySkills,
			Tags:        []string{"skills", "ai", "ml", "demand"},
			Methodology: "Skill mentions are matched case-insensitively in job descriptions. " +
				"Average salary is the mean over postings mentioning the skill.",
			Query:                  skillsQuery,
			RefreshIntervalSeconds: hourly,
			Schema:                 rows.Schema{Numeric: []string{"job_count", "avg_salary"}},
			Options: pipeline.Options{
				SortField:      "job_count",
				TopN:           15,
				LabelField:     "skill",
				PrimaryField:   "job_count",
				SecondaryField: "avg_salary",
			},
		},
		{
			ID:          "overall-job-market-trends",
			Name:        "Overall Job Market Trends",
			Description: "4-week moving average of weekly job posting volume",
			Category:    CategoryTrends,
			Tags:        []string{"trends", "market", "weekly", "volume"},
			Methodology: "Weekly posting volume (Monday to Sunday) across all industries, " +
				"filterable by state, role type and seniority. Recruiting agencies are excluded.",
			Query: `SELECT
  week_start,
  state,
  seniority_level,
  role_type,
  SUM(job_count) AS job_count,
  SUM(unique_companies) AS unique_companies,
  SUM(remote_jobs) AS remote_jobs
FROM {{dataset}}.weekly_job_market_trends
GROUP BY week_start, state, seniority_level, role_type
ORDER BY week_start ASC`,
			RefreshIntervalSeconds: hourly,
			Schema: rows.Schema{
				Temporal: []string{"week_start"},
				Numeric:  []string{"job_count", "unique_companies", "remote_jobs"},
			},
			Options: pipeline.Options{
				FilterFields:        []string{"state", "role_type", "seniority_level"},
				GroupByField:        "week_start",
				Aggregate:           pipeline.AggregateSum,
				SumFields:           []string{"job_count", "unique_companies", "remote_jobs"},
				SortField:           "week_start",
				SortAscending:       true,
				MovingAverageWindow: 4,
				MovingAverageField:  "job_count",
				MovingAverageOut:    "job_count_ma4",
				TrendEnabled:        true,
				TrendField:          "job_count",
				TrendOut:            "job_count_trend",
				LabelLayout:         "2006-01-02",
				PrimaryField:        "job_count_ma4",
				SecondaryField:      "job_count",
				MetadataFields:      []string{"job_count_trend", "unique_companies", "remote_jobs"},
			},
		},
		{
			ID:          "monthly-trends",
			Name:        "How Have AI/ML Job Postings and Salaries Trended Over Time?",
			Description: "Monthly AI/ML job volume and median salary",
			Category:    CategoryTrends,
			Tags:        []string{"trends", "ai", "ml", "monthly"},
			Methodology: "AI/ML Engineer postings with disclosed salaries between $100K and $2M, " +
				"by posting month.",
			Query: `SELECT
  month,
  job_count AS ai_ml_jobs,
  avg_salary AS ai_ml_avg_salary,
  median_salary AS ai_ml_median_salary
FROM {{dataset}}.monthly_ai_vs_swe_salary_trends
WHERE role_category = 'AI/ML Engineer'
ORDER BY month ASC`,
			RefreshIntervalSeconds: hourly,
			Schema: rows.Schema{
				Temporal: []string{"month"},
				Numeric:  []string{"ai_ml_jobs", "ai_ml_avg_salary", "ai_ml_median_salary"},
			},
			Options: pipeline.Options{
				TrendEnabled:   true,
				TrendField:     "ai_ml_median_salary",
				TrendOut:       "ai_ml_median_salary_trend",
				LabelField:     "month",
				LabelLayout:    "2006-01",
				PrimaryField:   "ai_ml_jobs",
				SecondaryField: "ai_ml_median_salary",
				MetadataFields: []string{"ai_ml_avg_salary", "ai_ml_median_salary_trend"},
			},
		},
	}
}

// skillsQuery unpivots the per-skill mention columns into one row per skill.
const skillsQuery = `WITH skills_unpivot AS (
  SELECT 'Python' AS skill, SUM(mentions_python) AS mentions, AVG(avg_salary) AS avg_salary FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'TensorFlow', SUM(mentions_tensorflow), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'PyTorch', SUM(mentions_pytorch), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'Kubernetes', SUM(mentions_kubernetes), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'Docker', SUM(mentions_docker), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'AWS', SUM(mentions_aws), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'Spark', SUM(mentions_spark), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'SQL', SUM(mentions_sql), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'Airflow', SUM(mentions_airflow), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'MLflow', SUM(mentions_mlflow), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'LangChain', SUM(mentions_langchain), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'Scikit-learn', SUM(mentions_sklearn), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'Keras', SUM(mentions_keras), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'Deep Learning', SUM(mentions_deep_learning), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
  UNION ALL SELECT 'NLP', SUM(mentions_nlp), AVG(avg_salary) FROM {{dataset}}.ai_ml_skills_keywords
)
SELECT skill, mentions AS job_count, ROUND(avg_salary, 0) AS avg_salary
FROM skills_unpivot
WHERE mentions > 0
ORDER BY mentions DESC`
