package corpus

// Instrument data. Question and option order is load-bearing: question order
// decides ties during matching, option order is the severity score.

var phq9Questions = []string{
	"Little interest or pleasure in doing things?",
	"Feeling down, depressed, or hopeless?",
	"Trouble falling or staying asleep, or sleeping too much?",
	"Feeling tired or having little energy?",
	"Poor appetite or overeating?",
	"Feeling bad about yourself - or that you are a failure or have let yourself or your family down?",
	"Trouble concentrating on things, such as reading the newspaper or watching television?",
	"Moving or speaking so slowly that other people could have noticed? Or the opposite - being so fidgety or restless that you have been moving around a lot more than usual?",
	"Thoughts that you would be better off dead, or of hurting yourself in some way?",
}

var bdiQuestions = []string{
	"Sadness",
	"Pessimism",
	"Past failure",
	"Loss of pleasure",
	"Guilty feelings",
	"Punishment feelings",
	"Self-dislike",
	"Self-criticalness",
	"Suicidal thoughts or wishes",
	"Crying",
	"Agitation",
	"Loss of interest",
	"Indecisiveness",
	"Worthlessness",
	"Loss of energy",
	"Changes in sleeping pattern",
	"Irritability",
	"Changes in appetite",
	"Concentration difficulty",
	"Tiredness or fatigue",
	"Loss of interest in sex",
}

var hdrsQuestions = []string{
	"Depressed mood",
	"Feelings of guilt",
	"Suicidal thoughts",
	"Insomnia - early",
	"Insomnia - middle",
	"Insomnia - late",
	"Work and activities",
	"Psychomotor retardation",
	"Agitation",
	"Anxiety - psychological",
	"Anxiety - somatic",
	"Somatic symptoms - gastrointestinal",
	"Somatic symptoms - general",
	"Genital symptoms",
	"Hypochondriasis",
	"Weight loss",
	"Insight",
}

// PHQ-9 uses one frequency scale for every question.
var phq9Options = []string{
	"Not at all",
	"Several days",
	"More than half the days",
	"Nearly every day",
}

var bdiOptionTable = []OptionSet{
	{Question: "Sadness", Options: []string{
		"I do not feel sad",
		"I feel sad",
		"I am sad all the time and I can't snap out of it",
		"I am so sad and unhappy that I can't stand it",
	}},
	{Question: "Pessimism", Options: []string{
		"I am not particularly discouraged about the future",
		"I feel discouraged about the future",
		"I feel I have nothing to look forward to",
		"I feel the future is hopeless and that things cannot improve",
	}},
	{Question: "Past failure", Options: []string{
		"I do not feel like a failure",
		"I feel I have failed more than the average person",
		"As I look back on my life, all I can see is a lot of failures",
		"I feel I am a complete failure as a person",
	}},
	{Question: "Loss of pleasure", Options: []string{
		"I get as much satisfaction out of things as I used to",
		"I don't enjoy things the way I used to",
		"I don't get real satisfaction out of anything anymore",
		"I am dissatisfied or bored with everything",
	}},
	{Question: "Guilty feelings", Options: []string{
		"I don't feel particularly guilty",
		"I feel guilty a good part of the time",
		"I feel quite guilty most of the time",
		"I feel guilty all of the time",
	}},
	{Question: "Punishment feelings", Options: []string{
		"I don't feel I am being punished",
		"I feel I may be punished",
		"I expect to be punished",
		"I feel I am being punished",
	}},
	{Question: "Self-dislike", Options: []string{
		"I don't feel disappointed in myself",
		"I am disappointed in myself",
		"I am disgusted with myself",
		"I hate myself",
	}},
	{Question: "Self-criticalness", Options: []string{
		"I don't feel I am any worse than anybody else",
		"I am critical of myself for my weaknesses or mistakes",
		"I blame myself all the time for my faults",
		"I blame myself for everything bad that happens",
	}},
	{Question: "Suicidal thoughts or wishes", Options: []string{
		"I don't have any thoughts of killing myself",
		"I have thoughts of killing myself, but I would not carry them out",
		"I would like to kill myself",
		"I would kill myself if I had the chance",
	}},
	{Question: "Crying", Options: []string{
		"I don't cry any more than usual",
		"I cry more now than I used to",
		"I cry all the time now",
		"I used to be able to cry, but now I can't cry even though I want to",
	}},
	{Question: "Agitation", Options: []string{
		"I am no more irritated by things than I ever was",
		"I am slightly more irritated now than usual",
		"I am quite annoyed or irritated a good deal of the time",
		"I feel irritated all the time",
	}},
	{Question: "Loss of interest", Options: []string{
		"I have not lost interest in other people",
		"I am less interested in other people than I used to be",
		"I have lost most of my interest in other people",
		"I have lost all of my interest in other people",
	}},
	{Question: "Indecisiveness", Options: []string{
		"I make decisions about as well as I ever could",
		"I put off making decisions more than I used to",
		"I have greater difficulty in making decisions more than I used to",
		"I can't make decisions at all anymore",
	}},
	{Question: "Worthlessness", Options: []string{
		"I don't feel that I look any worse than I used to",
		"I am worried that I am looking old or unattractive",
		"I feel there are permanent changes in my appearance that make me look unattractive",
		"I believe that I look ugly",
	}},
	{Question: "Loss of energy", Options: []string{
		"I can work about as well as before",
		"It takes an extra effort to get started at doing something",
		"I have to push myself very hard to do anything",
		"I can't do any work at all",
	}},
	{Question: "Changes in sleeping pattern", Options: []string{
		"I can sleep as well as usual",
		"I don't sleep as well as I used to",
		"I wake up 1-2 hours earlier than usual and find it hard to get back to sleep",
		"I wake up several hours earlier than I used to and cannot get back to sleep",
	}},
	// The published BDI-IA irritability item shares its wording with the
	// fatigue item; kept as published.
	{Question: "Irritability", Options: []string{
		"I don't get more tired than usual",
		"I get tired more easily than I used to",
		"I get tired from doing almost anything",
		"I am too tired to do anything",
	}},
	{Question: "Changes in appetite", Options: []string{
		"My appetite is no worse than usual",
		"My appetite is not as good as it used to be",
		"My appetite is much worse now",
		"I have no appetite at all anymore",
	}},
	{Question: "Concentration difficulty", Options: []string{
		"I can concentrate as well as ever",
		"I can't concentrate as well as usual",
		"It's hard to keep my mind on anything for very long",
		"I find I can't concentrate on anything",
	}},
	{Question: "Tiredness or fatigue", Options: []string{
		"I don't get more tired than usual",
		"I get tired more easily than I used to",
		"I get tired from doing almost anything",
		"I am too tired to do anything",
	}},
	{Question: "Loss of interest in sex", Options: []string{
		"I have not noticed any recent change in my interest in sex",
		"I am less interested in sex than I used to be",
		"I have almost no interest in sex",
		"I have lost interest in sex completely",
	}},
}

var hdrsOptionTable = []OptionSet{
	{Question: "Depressed mood", Options: []string{
		"Absent",
		"These feeling states indicated only on questioning",
		"These feeling states spontaneously reported verbally",
		"Communicates feeling states non-verbally",
		"Patient reports virtually only these feeling states",
	}},
	{Question: "Feelings of guilt", Options: []string{
		"Absent",
		"Self reproach, feels he has let people down",
		"Ideas of guilt or rumination over past errors or sinful deeds",
		"Present illness is a punishment. Delusions of guilt",
		"Hears accusatory or denunciatory voices and/or experiences threatening visual hallucinations",
	}},
	{Question: "Suicidal thoughts", Options: []string{
		"Absent",
		"Feels life is not worth living",
		"Wishes he were dead or any thoughts of possible death to self",
		"Suicide ideas or gesture",
		"Attempts at suicide",
	}},
	{Question: "Insomnia - early", Options: []string{
		"No difficulty falling asleep",
		"Complains of occasional difficulty falling asleep",
		"Complains of nightly difficulty falling asleep",
	}},
	{Question: "Insomnia - middle", Options: []string{
		"No difficulty",
		"Patient complains of being restless and disturbed during the night",
		"Waking during the night – any getting out of bed rates 2",
	}},
	{Question: "Insomnia - late", Options: []string{
		"No difficulty",
		"Waking in early hours of the morning but goes back to sleep",
		"Unable to fall asleep again if gets out of bed",
	}},
	{Question: "Work and activities", Options: []string{
		"No difficulty",
		"Thoughts and feelings of incapacity, fatigue or weakness",
		"Loss of interest in activity; hobbies or work",
		"Decrease in actual time spent in activities or decrease in productivity",
		"Stopped working because of present illness",
	}},
	{Question: "Psychomotor retardation", Options: []string{
		"Normal speech and thought",
		"Slight retardation at interview",
		"Obvious retardation at interview",
		"Interview difficult",
		"Complete stupor",
	}},
	{Question: "Agitation", Options: []string{
		"None",
		"Fidgetiness",
		"Playing with hands, hair, etc.",
		"Moving about, can't sit still",
		"Hand wringing, nail biting, hair-pulling, biting of lips",
	}},
	{Question: "Anxiety - psychological", Options: []string{
		"No difficulty",
		"Subjective tension and irritability",
		"Worrying about minor matters",
		"Apprehensive attitude apparent in face or speech",
		"Fears expressed without questioning",
	}},
	{Question: "Anxiety - somatic", Options: []string{
		"Absent",
		"Mild",
		"Moderate",
		"Severe",
		"Incapacitating",
	}},
	{Question: "Somatic symptoms - gastrointestinal", Options: []string{
		"None",
		"Loss of appetite but eating without encouragement from others",
		"Difficulty eating without urging from others",
	}},
	{Question: "Somatic symptoms - general", Options: []string{
		"None",
		"Heaviness in limbs, back or head. Backaches, headache, muscle aches. Loss of energy and fatigability",
		"Any clear-cut symptom rates 2",
	}},
	{Question: "Genital symptoms", Options: []string{
		"Absent",
		"Mild",
		"Severe",
	}},
	{Question: "Hypochondriasis", Options: []string{
		"Not present",
		"Self-absorption (bodily)",
		"Preoccupation with health",
		"Frequent complaints, requests for help, etc.",
		"Hypochondriacal delusions",
	}},
	{Question: "Weight loss", Options: []string{
		"No weight loss",
		"Probable weight loss associated with present illness",
		"Definite (according to patient) weight loss",
		"Not assessed",
	}},
	{Question: "Insight", Options: []string{
		"Acknowledges being depressed and ill",
		"Acknowledges illness but attributes cause to bad food, climate, overwork, virus, need for rest, etc.",
		"Denies being ill at all",
	}},
}

// Used when no category- or question-specific option list is available.
var defaultOptionList = []string{
	"Not at all",
	"Several days",
	"More than half the days",
	"Nearly every day",
}
