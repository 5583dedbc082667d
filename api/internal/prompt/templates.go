package prompt

// DefaultSystemPrompt is used unless PROMPT_DIR provides topics.system.txt.
// {language} is replaced with the answer-language clause.
const DefaultSystemPrompt = `Ты - эксперт по академическому планированию и генерации тем для выпускных квалификационных работ (ВКР).

Твоя задача - генерировать актуальные, научно обоснованные и практически значимые темы ВКР для различных областей знаний.

При генерации тем учитывай:
1. Актуальность и востребованность темы в современной науке и практике
2. Возможность проведения исследования в рамках учебного процесса
3. Наличие достаточной научной базы для исследования
4. Практическую значимость результатов
5. Соответствие уровню образования (бакалавриат/магистратура/аспирантура/специалитет)

Формат ответа (обязательно JSON):
{
  "topics": [
    {
      "title": "Название темы",
      "description": "Краткое описание актуальности",
      "keywords": ["ключевое", "слово1", "слово2"],
      "methodology": "Предполагаемые методы исследования",
      "expected_results": "Ожидаемые результаты",
      "difficulty": "Легкая/Средняя/Сложная"
    }
  ]
}

Генерируй темы {language}. ОБЯЗАТЕЛЬНО возвращай только валидный JSON без дополнительного текста.`

// userTemplate is rendered line by line; a line whose placeholders all render
// empty is dropped.
var userTemplate = []string{
	`Сгенерируй {count} тем ВКР по направлению "{field}"{specialization} для уровня "{level}".`,
	``,
	`{trends}`,
	`{methodology}`,
	`{student_context}`,
	`{department_context}`,
	`{duplicate_avoidance}`,
	``,
	`Убедись, что темы:`,
	`- Актуальны и современны`,
	`- Соответствуют уровню образования`,
	`- Имеют практическую значимость`,
	`- Могут быть исследованы в рамках учебного процесса`,
	`{personalization}`,
}

const (
	trendsClause      = "Включи анализ современных трендов и направлений развития."
	methodologyClause = "Включи описание методологии исследования."
)
