package recommend

import "strings"

// remediationRule maps keywords found in a question's text to standardized
// remediation guidance. The table is ordered and first match wins, which
// keeps the dispatch auditable; the texts cite Ukrainian building norms and
// can be swapped for another locale without touching the algorithm.
type remediationRule struct {
	keywords []string
	advice   string
}

var remediationRules = []remediationRule{
	{
		keywords: []string{"пандус"},
		advice:   "Встановіть нормативний пандус з поручнями відповідно до ДБН В.2.2-17:2006. Кут нахилу не більше 4,5°, ширина мінімум 1,2 м.",
	},
	{
		keywords: []string{"двер", "вхід"},
		advice:   "Забезпечте мінімальну ширину дверних прорізів 90 см. Встановіть дверні ручки натискного типу на висоті 80-110 см.",
	},
	{
		keywords: []string{"поручн"},
		advice:   "Встановіть поручні на висоті 0,7 та 0,9 м з обох сторін. Поручні мають бути круглими (діаметр 40-45 мм), контрастного кольору.",
	},
	{
		keywords: []string{"освітлен"},
		advice:   "Забезпечте достатнє освітлення (мінімум 200 люкс) у всіх зонах. Уникайте бліків та різких тіней.",
	},
	{
		keywords: []string{"табличк", "навігац"},
		advice:   "Розмістіть контрастні таблички на висоті 1,5 м. Дублюйте інформацію шрифтом Брайля та піктограмами.",
	},
	{
		keywords: []string{"брайл"},
		advice:   "Додайте тактильні таблички зі шрифтом Брайля до всіх інформаційних елементів відповідно до ДСТУ ISO 17049:2016.",
	},
	{
		keywords: []string{"піктограм", "іконк"},
		advice:   "Використовуйте універсальні піктограми відповідно до ISO 7001. Розмір піктограм мінімум 10x10 см.",
	},
	{
		keywords: []string{"контраст"},
		advice:   "Забезпечте коефіцієнт контрастності мінімум 4,5:1 для тексту та 3:1 для великих елементів (WCAG 2.1 AA).",
	},
	{
		keywords: []string{"сурдоперекладач", "слух"},
		advice:   "Організуйте послуги сурдоперекладача або відеозв'язок з сурдоперекладачем для заходів.",
	},
	{
		keywords: []string{"англійськ", "мов"},
		advice:   "Додайте англомовний переклад до всієї ключової інформації (вивіски, правила, програми).",
	},
	{
		keywords: []string{"туалет", "санвузол"},
		advice:   "Обладнайте мінімум один санвузол для людей з інвалідністю: простір 1,8x2,2 м, поручні, дзеркало на висоті 90 см.",
	},
	{
		keywords: []string{"паркування", "паркомісц"},
		advice:   "Виділіть 10% паркомісць (мінімум 1) для людей з інвалідністю. Розмір: 3,5x5 м, розмітка синім кольором, знак 6.3.1.",
	},
}

// genericAdvice is the fallback when no keyword rule matches.
const genericAdvice = "Впровадьте зміни відповідно до ДБН В.2.2-17:2006 та Конвенції про права осіб з інвалідністю. Проконсультуйтеся з експертами з доступності."

// adviceFor returns the remediation text for a question. Matching is done on
// the lowercased question text; the first rule with any matching keyword wins.
func adviceFor(questionText string) string {
	text := strings.ToLower(questionText)
	for _, rule := range remediationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.advice
			}
		}
	}
	return genericAdvice
}
